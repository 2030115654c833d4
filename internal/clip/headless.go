package clip

// headlessBackend is a no-op clipboard backend for environments without a
// display server (headless Linux servers, containers, etc.).
// Its token never changes and writes are silently discarded.
type headlessBackend struct{}

// NewHeadless returns a no-op backend.
func NewHeadless() Backend { return headlessBackend{} }

func (headlessBackend) Name() string              { return "headless (no-op)" }
func (headlessBackend) ReadChangeToken() int64    { return 0 }
func (headlessBackend) ReadText() (string, bool)  { return "", false }
func (headlessBackend) ReadImage() ([]byte, bool) { return nil, false }
func (headlessBackend) WriteText(string) error    { return nil }
func (headlessBackend) WriteImage([]byte) error   { return nil }
func (headlessBackend) Close()                    {}
