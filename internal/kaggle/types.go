package kaggle

// Kernel is one publicly listed kernel, as returned by the competition
// kernel listing. Kaggle exposes no structured score field here; when a
// score exists at all it is embedded in the title text.
type Kernel struct {
	// Ref uniquely identifies the kernel, e.g. "someuser/my-solution".
	Ref    string
	Title  string
	Author string
	URL    string
}
