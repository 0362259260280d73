// Package media is the external media-host collaborator: it takes a
// local file path and returns a hosted URL, or fails. Uploads are not
// retried; a failed upload is terminal for the request that needed it.
package media

import "context"

type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}
