package model

// swagger:model Subject
type Subject struct {
	IDModel

	Name string `gorm:"size:255;not null;uniqueIndex" json:"name"`
}

func (Subject) TableName() string {
	return "subjects"
}
