package model

// IDModel 自增主键。没有 DeletedAt：删除是物理删除，外键级联依赖这一点
type IDModel struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`
}
