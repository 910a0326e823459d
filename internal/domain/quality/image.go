package quality

import "time"

// MaxImagesPerUpload caps a single bulk image upload
const MaxImagesPerUpload = 10

// IqaImage is a photo attached to an IQA inspection
type IqaImage struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	IqaID       int64     `gorm:"column:iqa_id;not null;index" json:"iqa_id"`
	FileName    string    `gorm:"column:file_name;type:varchar(255);not null" json:"file_name"`
	StorageKey  string    `gorm:"column:storage_key;type:varchar(500);not null" json:"storage_key"`
	ContentType string    `gorm:"column:content_type;type:varchar(100);not null" json:"content_type"`
	SizeBytes   int64     `gorm:"column:size_bytes;not null" json:"size_bytes"`
	UploadedBy  string    `gorm:"column:uploaded_by;type:varchar(50)" json:"uploaded_by"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName implements gorm's tabler
func (IqaImage) TableName() string { return "iqa_images" }
