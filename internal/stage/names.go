package stage

// Name identifies one pipeline step in logs, status views and the outcome
// ledger.
type Name string

const (
	Transcript Name = "transcript"
	Translate  Name = "translate"
	FetchMedia Name = "fetch_media"
	Probe      Name = "probe"
	Render     Name = "render"
	Metadata   Name = "metadata"
	Publish    Name = "publish"
	Notify     Name = "notify"
	Cleanup    Name = "cleanup"
)

// Ordered lists the steps in the order the engine runs them.
func Ordered() []Name {
	return []Name{Transcript, Translate, FetchMedia, Probe, Render, Metadata, Publish, Notify, Cleanup}
}

func (n Name) String() string { return string(n) }
