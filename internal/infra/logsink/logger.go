package logsink

import (
	"io"
	"log"
)

// Logger writes progress lines through a standard library logger.
type Logger struct {
	l *log.Logger
}

func New(w io.Writer, prefix string) *Logger {
	return &Logger{l: log.New(w, prefix, log.LstdFlags)}
}

func (s *Logger) Log(line string) {
	s.l.Println(line)
}
