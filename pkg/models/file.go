package models

// NameRef is a request field carried as {"name": ...}.
type NameRef struct {
	Name string `json:"name"`
}

// EnumField is a response enum rendered with an id and a description.
type EnumField struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FileRequest uploads a base64 encoded JSONL document for batch processing.
type FileRequest struct {
	Provider  ProviderRef `json:"provider"`
	Endpoint  NameRef     `json:"endpoint"`
	Content   string      `json:"content"`
	Name      string      `json:"name"`
	Extension NameRef     `json:"extension"`
	Purpose   NameRef     `json:"purpose"`
}

// FileResponse describes an uploaded file.
type FileResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Extension EnumField `json:"extension"`
	Purpose   EnumField `json:"purpose"`
	Status    EnumField `json:"status"`
	Bytes     int64     `json:"bytes"`
	CreatedAt string    `json:"created_at"`
}

var (
	fileExtensions = map[string]EnumField{
		"jsonl": {ID: 1, Name: "jsonl", Description: "JSON Lines"},
	}
	filePurposes = map[string]EnumField{
		"batch": {ID: 1, Name: "batch", Description: "Batch processing"},
	}
	fileStatuses = map[string]EnumField{
		"pending":   {ID: 1, Name: "pending", Description: "Pending"},
		"completed": {ID: 2, Name: "completed", Description: "Completed"},
		"failed":    {ID: 3, Name: "failed", Description: "Failed"},
		"processed": {ID: 4, Name: "processed", Description: "Processed"},
	}
)

// FileExtension returns the enum for a file extension name.
func FileExtension(name string) EnumField { return lookupEnum(fileExtensions, name) }

// FilePurpose returns the enum for a file purpose name.
func FilePurpose(name string) EnumField { return lookupEnum(filePurposes, name) }

// FileStatus returns the enum for a file status name.
func FileStatus(name string) EnumField { return lookupEnum(fileStatuses, name) }

func lookupEnum(table map[string]EnumField, name string) EnumField {
	if e, ok := table[name]; ok {
		return e
	}
	return EnumField{Name: name, Description: name}
}
