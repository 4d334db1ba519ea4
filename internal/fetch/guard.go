package fetch

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"scribe/internal/services"
)

// Validate enforces the shared post-conditions of every fetch strategy: the
// transfer must meet the minimum size and must not be an HTML or text page.
// The declared content type is checked first; when the server declared
// nothing useful, the file head is sniffed as a backstop.
func Validate(result Result, minBytes int64) error {
	if result.Bytes < minBytes {
		return services.Wrap(services.ErrAcquisitionTooSmall, "guard", "",
			fmt.Sprintf("transferred %d bytes, need at least %d", result.Bytes, minBytes), nil)
	}
	if htmlLike(result.ContentType) {
		return services.Wrap(services.ErrAcquisitionWrongType, "guard", "",
			"declared content type "+result.ContentType+" is not media", nil)
	}
	sniffed, err := sniffFile(result.Path)
	if err != nil {
		return services.Wrap(services.ErrAcquisitionWrongType, "guard", "", "sniff downloaded file", err)
	}
	if htmlLike(sniffed) {
		return services.Wrap(services.ErrAcquisitionWrongType, "guard", "",
			"file content looks like "+sniffed+", not media", nil)
	}
	return nil
}

func sniffFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}
