package tools

import "io"

// percentReader counts bytes read from an HTTP body and reports the
// percentage whenever it advances by at least one point, and once at 100%.
type percentReader struct {
	reader     io.Reader
	total      int64
	read       int64
	last       float64
	reported   bool
	onProgress func(read, total int64, percentage float64)
}

func newPercentReader(r io.Reader, total int64, cb func(read, total int64, percentage float64)) *percentReader {
	return &percentReader{reader: r, total: total, onProgress: cb}
}

func (pr *percentReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.read += int64(n)
		pr.maybeReport()
	}
	return n, err
}

func (pr *percentReader) maybeReport() {
	if pr.total <= 0 || pr.onProgress == nil {
		return
	}
	pct := float64(pr.read) / float64(pr.total) * 100
	if pct-pr.last >= 1 || (pct >= 100 && !pr.completed()) {
		pr.onProgress(pr.read, pr.total, pct)
		pr.last = pct
		pr.reported = true
	}
}

func (pr *percentReader) completed() bool {
	return pr.reported && pr.last >= 100
}

type writeError struct{ err error }

func (e *writeError) Error() string { return e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

// copyBuffer is io.CopyBuffer that tags destination failures with writeError
// so callers can tell a full disk from a dropped connection.
func copyBuffer(dst io.Writer, src io.Reader, buf []byte) (int64, error) {
	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			m, werr := dst.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, &writeError{werr}
			}
			if m != n {
				return written, &writeError{io.ErrShortWrite}
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}
