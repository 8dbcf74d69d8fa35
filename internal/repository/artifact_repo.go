package repository

// ArtifactWriter defines a producer of generated project files.
type ArtifactWriter interface {
	// WriteArtifacts renders and writes every artifact, returning the written paths.
	WriteArtifacts() ([]string, error)
}
