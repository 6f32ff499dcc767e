package model

// Upload is one selected time-card image.
type Upload struct {
	Name        string
	ContentType string
	Body        []byte
}

// Size returns the image size in bytes.
func (u Upload) Size() int { return len(u.Body) }
