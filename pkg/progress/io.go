package progress

import "io"

// Writer reports the number of bytes written through it to a task
type Writer struct {
	w    io.Writer
	task Task
	n    int64
}

// NewWriter wraps w so writes update task
func NewWriter(w io.Writer, task Task) *Writer {
	return &Writer{w: w, task: task}
}

func (pw *Writer) Write(p []byte) (int, error) {
	n, err := pw.w.Write(p)
	pw.n += int64(n)
	pw.task.Update(pw.n)
	return n, err
}

// Count returns the number of bytes written so far
func (pw *Writer) Count() int64 { return pw.n }

// Reader reports the number of bytes read through it to a task
type Reader struct {
	r    io.Reader
	task Task
	n    int64
}

// NewReader wraps r so reads update task
func NewReader(r io.Reader, task Task) *Reader {
	return &Reader{r: r, task: task}
}

func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.n += int64(n)
		pr.task.Update(pr.n)
	}
	return n, err
}

// Count returns the number of bytes read so far
func (pr *Reader) Count() int64 { return pr.n }
