package workspace

import "time"

// FileView is the read-only state of one file in a batch.
type FileView struct {
	Index       int      `json:"index"`
	Name        string   `json:"name"`
	ContentType string   `json:"content_type"`
	Size        int      `json:"size"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Preview     string   `json:"preview,omitempty"`
	Status      Status   `json:"status"`
	ViewMode    ViewMode `json:"view_mode"`
	Result      *Result  `json:"result,omitempty"`
}

// Snapshot is a consistent copy of a batch.
type Snapshot struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Files     []FileView `json:"files"`
}

// Snapshot copies the batch state. Previews carry the image data URLs only
// when withPreviews is set.
func (b *Batch) Snapshot(withPreviews bool) Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := Snapshot{ID: b.ID, CreatedAt: b.CreatedAt, Files: make([]FileView, len(b.entries))}
	for i, e := range b.entries {
		fv := FileView{
			Index:       i,
			Name:        e.upload.Name,
			ContentType: e.preview.ContentType,
			Size:        e.upload.Size(),
			Width:       e.preview.Width,
			Height:      e.preview.Height,
			Status:      e.status,
			ViewMode:    e.view,
		}
		if withPreviews {
			fv.Preview = e.preview.URL
		}
		if e.result != nil {
			r := *e.result
			fv.Result = &r
		}
		s.Files[i] = fv
	}
	return s
}
