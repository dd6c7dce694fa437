package sqlite

import "github.com/prism-xos/prism-core/internal/media/repository"

var (
	_ repository.MediaRepository    = (*MediaRepo)(nil)
	_ repository.SubtitleRepository = (*SubtitleRepo)(nil)
)
