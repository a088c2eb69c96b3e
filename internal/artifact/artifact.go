package artifact

// Type classifies an artifact by its originating content.
type Type string

const (
	TypeRepository Type = "repository"
	TypeZip        Type = "zip"
	TypePDF        Type = "pdf"
	TypeDoc        Type = "doc"
	TypeText       Type = "text"
	TypeFile       Type = "file"
)

// ValidType reports whether t is a known artifact type.
func ValidType(t Type) bool {
	switch t {
	case TypeRepository, TypeZip, TypePDF, TypeDoc, TypeText, TypeFile:
		return true
	}
	return false
}

// Status tracks the ingestion lifecycle for artifacts whose creation
// involves an asynchronous fetch (repository, zip). Other types complete
// synchronously and carry no status.
type Status string

const (
	StatusCloning    Status = "cloning"
	StatusExtracting Status = "extracting"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// StorageObject marks an artifact whose file data lives in the object
// store under the artifact's ID. When StorageType is empty, file data is
// inline on the record (Files or Content).
const StorageObject = "object"

// FileEntry is one ingested file. Content is populated only for inline
// storage; object-store listings carry path and size alone.
type FileEntry struct {
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
	Size    int64  `json:"size"`
}

// FileStat is a content-free file listing entry, as recorded in the
// object store's metadata.json sidecar.
type FileStat struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Artifact is the central entity: a user-attached content bundle linked to
// a chat session. The (UserID, SessionID) pair never changes after creation.
type Artifact struct {
	ID        string  `json:"id"`
	SessionID string  `json:"session_id"`
	UserID    string  `json:"user_id"`
	Type      Type    `json:"type"`
	Name      string  `json:"name"`
	Source    *string `json:"source,omitempty"`

	// Inline storage (legacy/small artifacts). Mutually exclusive with
	// StorageType == StorageObject.
	Files   []FileEntry `json:"files,omitempty"`
	Content *string     `json:"content,omitempty"`

	// Ingestion lifecycle. Empty for synchronously created types.
	Status Status  `json:"status,omitempty"`
	Error  *string `json:"error,omitempty"`

	// Storage location.
	StorageType string  `json:"storage_type,omitempty"`
	StoragePath *string `json:"storage_path,omitempty"`
	TotalFiles  *int    `json:"total_files,omitempty"`

	// Source-specific info.
	Host        *string `json:"host,omitempty"`
	Owner       *string `json:"owner,omitempty"`
	Filename    *string `json:"filename,omitempty"`
	ContentType *string `json:"content_type,omitempty"`

	Size      *int64 `json:"size,omitempty"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
	DeletedAt *int64 `json:"deleted_at,omitempty"`
}

// Deleted reports whether the artifact is soft-deleted.
func (a *Artifact) Deleted() bool {
	return a.DeletedAt != nil
}

// ObjectStored reports whether the artifact's file data lives in the
// object store rather than inline on the record.
func (a *Artifact) ObjectStored() bool {
	return a.StorageType == StorageObject
}

// Session is a chat session owning artifacts. The core consults it as a
// guard before artifact creation and cascades soft-delete to artifacts.
type Session struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
	DeletedAt *int64 `json:"deleted_at,omitempty"`
}

// TypeForFilename maps an uploaded filename to an artifact type by
// extension. Unknown extensions ingest as TypeFile.
func TypeForFilename(ext string) Type {
	switch ext {
	case ".zip":
		return TypeZip
	case ".pdf":
		return TypePDF
	case ".doc", ".docx":
		return TypeDoc
	case ".txt", ".md":
		return TypeText
	}
	return TypeFile
}
