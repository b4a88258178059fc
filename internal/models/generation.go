package models

import (
	"database/sql"
	"time"
)

// UserGeneration is one durable generation record. Records are append-only;
// only DownloadImg is patched after creation, onto the newest record for a uid.
type UserGeneration struct {
	ID          int64
	UID         string
	Prompt      string
	RefImg      sql.NullString
	GImgURL1    sql.NullString
	GImgURL2    sql.NullString
	GImgURL3    sql.NullString
	GImgURL4    sql.NullString
	DownloadImg sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ResultURLs returns the populated generated-image URLs in slot order.
func (g *UserGeneration) ResultURLs() []string {
	urls := make([]string, 0, 4)
	for _, u := range []sql.NullString{g.GImgURL1, g.GImgURL2, g.GImgURL3, g.GImgURL4} {
		if u.Valid && u.String != "" {
			urls = append(urls, u.String)
		}
	}
	return urls
}
