package models

import "time"

// UploadRecord tracks files pushed to the asset store, such as applicant photos.
type UploadRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Purpose   string    `gorm:"size:32;index;not null" json:"purpose"`
	OwnerRef  string    `gorm:"size:64;index" json:"owner_ref"`
	FileName  string    `gorm:"size:255;not null" json:"file_name"`
	URL       string    `gorm:"size:512;not null" json:"url"`
	MimeType  string    `gorm:"size:128;not null" json:"mime_type"`
	SizeBytes int64     `gorm:"not null" json:"size_bytes"`
	Checksum  string    `gorm:"size:128;index" json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}

// UploadPurposeApplicantPhoto labels photos attached to admission forms.
const UploadPurposeApplicantPhoto = "applicant_photo"
