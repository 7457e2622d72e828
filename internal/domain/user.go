package domain

import "time"

// User 내부 사용자 (외부 인증 공급자 ID 와 매핑)
type User struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ExternalID     string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"externalId"`
	FirstName      string    `gorm:"type:varchar(100)" json:"firstName"`
	LastName       string    `gorm:"type:varchar(100)" json:"lastName"`
	Email          string    `gorm:"type:varchar(255);index" json:"email"`
	OrganizationID string    `gorm:"type:varchar(36);index" json:"organizationId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName returns the table name
func (User) TableName() string {
	return "users"
}

// PersonName 표시용 이름
type PersonName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Name returns the display name pair, nil for a nil user
func (u *User) Name() *PersonName {
	if u == nil {
		return nil
	}
	return &PersonName{FirstName: u.FirstName, LastName: u.LastName}
}
