package extract

import (
	"io"
	"os"
	"strings"
)

func (e *Extractor) extractText(path string) Result {
	f, err := os.Open(path)
	if err != nil {
		e.logger.Warn("cannot open text file", "path", path, "error", err)
		return rejected()
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, int64(e.options.MaxTextLength)))
	if err != nil {
		e.logger.Warn("partial read of text file", "path", path, "error", err, "bytes", len(data))
	}
	return accepted(strings.ToValidUTF8(string(data), ""))
}
