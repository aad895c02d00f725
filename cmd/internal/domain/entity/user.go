package entity

// User is the authenticated identity behind every request.
// Display information lives in Profile.
type User struct {
	ID            int64      `gorm:"primaryKey;autoIncrement:false"`
	SubUUID       string     `gorm:"not null;index"`
	Email         string     `gorm:"not null;index"`
	EmailVerified bool       `gorm:"not null"`
	Permissions   Permission `gorm:"not null;type:bigint;default:0"`
	Active        bool       `gorm:"not null;default:true"`
	Suspended     bool       `gorm:"not null;default:false"`
	CreatedAt     int64      `gorm:"not null;autoCreateTime:false"`
	UpdatedAt     int64      `gorm:"not null;autoUpdateTime:false"`
}
