package journal

// Names of the documents stored in each project partition.
const (
	ProjectDocument    = "project.json"
	DefinitionDocument = "definition.json"
	DataDocument       = "data.json"
)

// Store provides an interface for persisting project documents.
// Documents are opaque bytes grouped into partitions, one partition per
// project keyed by the project id.
type Store interface {
	// ListPartitions returns the keys of all partitions present in the store.
	ListPartitions() ([]string, error)

	// ReadDocument returns the named document of a partition.
	// Returns ErrDocumentNotFound when it does not exist.
	ReadDocument(partition, name string) ([]byte, error)

	// WriteDocument creates or replaces the named document of a partition.
	WriteDocument(partition, name string, data []byte) error
}
