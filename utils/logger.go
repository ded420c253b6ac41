package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
)

type Logger struct {
	l  *log.Logger
	lv int
}

const (
	DEBUG = iota
	WARN
	ERROR
)

var tagColors = map[int]*color.Color{
	DEBUG: color.New(color.FgCyan),
	WARN:  color.New(color.FgYellow),
	ERROR: color.New(color.FgRed),
}

// Log is the process-wide logger. It writes to stderr so that stdout only
// ever carries program output.
var Log = NewLogger(os.Stderr, WARN)

func NewLogger(w io.Writer, level int) *Logger {
	return &Logger{
		l:  log.New(w, "", 0),
		lv: level,
	}
}

func (lg *Logger) log(level int, tag, msg string, args ...any) {
	if level < lg.lv {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	lg.l.Printf("%s [%s] %s\n", ts, tagColors[level].Sprint(tag), fmt.Sprintf(msg, args...))
}

func (lg *Logger) Debug(m string, a ...any) { lg.log(DEBUG, "DEBUG", m, a...) }
func (lg *Logger) Warn(m string, a ...any)  { lg.log(WARN, "WARN", m, a...) }
func (lg *Logger) Error(m string, a ...any) { lg.log(ERROR, "ERROR", m, a...) }
