package operator

import (
	"github.com/mitchellh/copystructure"
)

// Sample is the unit record operators exchange with the platform. Field
// names follow the platform's wire format exactly; do not rename the
// tags.
type Sample struct {
	// Text is the primary textual payload
	Text string `json:"text" yaml:"text"`

	// Data is the secondary payload (base64 or raw, operator-defined)
	Data string `json:"data" yaml:"data"`

	// FileName is the source file's base name
	FileName string `json:"fileName" yaml:"fileName"`

	// FileType is the source file's extension without the leading dot
	FileType string `json:"fileType" yaml:"fileType"`

	// FileID is the platform's identifier for the source file
	FileID string `json:"fileId" yaml:"fileId"`

	// FilePath is the absolute path of the source file
	FilePath string `json:"filePath" yaml:"filePath"`

	// FileSize is the source file size in bytes, as a decimal string
	FileSize string `json:"fileSize" yaml:"fileSize"`

	// ExportPath is the dataset output directory; its base name is the
	// dataset identifier on the platform
	ExportPath string `json:"export_path" yaml:"export_path"`

	// ExtParams carries opaque platform-side extension parameters
	ExtParams string `json:"ext_params" yaml:"ext_params"`

	// TargetType is the requested output file type
	TargetType string `json:"target_type" yaml:"target_type"`
}

// Clone returns a deep copy of the sample. Operators that modify a
// sample in place should clone first so the harness-owned input is
// never aliased into the artifact.
func (s *Sample) Clone() *Sample {
	if s == nil {
		return nil
	}
	copied, err := copystructure.Copy(s)
	if err != nil {
		// Sample contains only strings; Copy cannot fail on it.
		dup := *s
		return &dup
	}
	return copied.(*Sample)
}
