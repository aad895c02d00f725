package entity

// Profile holds the public-facing fields of a user.
// It shares its primary key with the User it belongs to.
type Profile struct {
	ID          int64   `gorm:"primaryKey;autoIncrement:false"`
	DisplayName *string
	AvatarKey   *string // S3 object key, the URL is derived from it
	Bio         *string
	CreatedAt   int64 `gorm:"not null;autoCreateTime:false"`
	UpdatedAt   int64 `gorm:"not null;autoUpdateTime:false"`
}
