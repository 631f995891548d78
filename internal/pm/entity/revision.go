package entity

import "time"

// Revision 图纸的一次上传版本，按字母递增（A, B, C...）
// 字母在创建时分配，之后不再变更；替换文件只改当前版本的文件引用
type Revision struct {
	ID             string `json:"id" gorm:"primaryKey;size:32"`
	DrawingID      string `json:"drawing_id" gorm:"size:32;not null;index;uniqueIndex:idx_revisions_drawing_letter"`
	RevisionLetter string `json:"revision_letter" gorm:"size:4;not null;uniqueIndex:idx_revisions_drawing_letter"`

	FileRef         string `json:"file_ref" gorm:"size:512;not null"`
	CADFileRef      string `json:"cad_file_ref,omitempty" gorm:"size:512"`
	ClientMarkupRef string `json:"client_markup_ref,omitempty" gorm:"size:512"` // 客户批注文件，批准时附加

	UploadedBy string    `json:"uploaded_by" gorm:"size:32;not null"`
	CreatedAt  time.Time `json:"created_at"`

	// Relations
	Uploader *User `json:"uploader,omitempty" gorm:"foreignKey:UploadedBy"`
}

func (Revision) TableName() string {
	return "drawing_revisions"
}

// FirstRevisionLetter 首个修订版字母
const FirstRevisionLetter = "A"

// NextRevisionLetter 计算下一个修订版字母：A→B, ..., Z→AA, AZ→BA
// current为空时返回A
func NextRevisionLetter(current string) string {
	if current == "" {
		return FirstRevisionLetter
	}
	letters := []byte(current)
	for i := len(letters) - 1; i >= 0; i-- {
		if letters[i] < 'Z' {
			letters[i]++
			return string(letters)
		}
		letters[i] = 'A'
	}
	return "A" + string(letters)
}
