// Package log is the CLI's leveled console logger. A Logger is an immutable
// value carried in the context; structured fields are zap fields rendered as a
// trailing JSON object.
package log

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/speakeasy-api/gitsync/internal/charm/styles"
	"github.com/speakeasy-api/gitsync/internal/env"
	"github.com/speakeasy-api/gitsync/internal/utils"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarn    Level = "warn"
	LevelErr     Level = "error"
	LevelSuccess Level = "success"
)

// Levels are the values accepted for --logLevel.
var Levels = []string{string(LevelInfo), string(LevelWarn), string(LevelErr)}

// Success messages are shown whenever errors are.
var levelRank = map[Level]int{
	LevelInfo:    0,
	LevelWarn:    1,
	LevelErr:     2,
	LevelSuccess: 2,
}

// Formatter renders the message part of a log line.
type Formatter func(l Logger, level Level, msg string, err error) string

type Logger struct {
	level           Level
	file            string
	fields          []zapcore.Field
	interactiveOnly bool
	formatter       Formatter
	writer          io.Writer
}

type contextKey struct{}

// With returns a new context with the given logger added to the context.
func With(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// From returns the logger associated with the given context.
func From(ctx context.Context) Logger {
	if l, ok := ctx.Value(contextKey{}).(Logger); ok {
		return l
	}
	return New()
}

func New() Logger {
	formatter := BasicFormatter
	if env.IsGithubAction() {
		formatter = GithubFormatter
	}

	return Logger{
		level:     LevelInfo,
		formatter: formatter,
		writer:    os.Stderr,
	}
}

func (l Logger) WithLevel(level Level) Logger {
	l.level = level
	return l
}

// WithAssociatedFile ties warnings and errors to a repository path, which CI
// formatters turn into file annotations.
func (l Logger) WithAssociatedFile(file string) Logger {
	l.file = filepath.ToSlash(file)
	return l
}

// WithInteractiveOnly drops output when not attached to a terminal.
func (l Logger) WithInteractiveOnly() Logger {
	l.interactiveOnly = true
	return l
}

func (l Logger) WithWriter(w io.Writer) Logger {
	l.writer = w
	return l
}

func (l Logger) With(fields ...zapcore.Field) Logger {
	l.fields = append(slices.Clip(l.fields), fields...)
	return l
}

func (l Logger) Info(msg string, fields ...zapcore.Field) {
	l.log(LevelInfo, msg, fields)
}

func (l Logger) Warn(msg string, fields ...zapcore.Field) {
	l.log(LevelWarn, msg, fields)
}

func (l Logger) Warnf(format string, a ...any) {
	l.log(LevelWarn, fmt.Sprintf(format, a...), nil)
}

func (l Logger) Error(msg string, fields ...zapcore.Field) {
	l.log(LevelErr, msg, fields)
}

func (l Logger) Success(msg string, fields ...zapcore.Field) {
	l.log(LevelSuccess, msg, fields)
}

func (l Logger) Printf(format string, a ...any) {
	l.Println(fmt.Sprintf(format, a...))
}

func (l Logger) PrintfStyled(style lipgloss.Style, format string, a ...any) {
	l.Println(style.Render(fmt.Sprintf(format, a...)))
}

func (l Logger) Println(s string) {
	if l.interactiveOnly && !utils.IsInteractive() {
		return
	}
	fmt.Fprintln(l.writer, s)
}

// PrintlnUnstyled writes pre-rendered output, such as file content, as is.
func (l Logger) PrintlnUnstyled(a any) {
	l.Println(fmt.Sprint(a))
}

func (l Logger) log(level Level, msg string, fields []zapcore.Field) {
	if levelRank[level] < levelRank[l.level] {
		return
	}

	msg, err, fields := splitError(msg, append(slices.Clip(l.fields), fields...))
	l.Println(l.formatter(l, level, msg, err) + encodeFields(fields))
}

func BasicFormatter(_ Logger, level Level, msg string, _ error) string {
	switch level {
	case LevelWarn:
		return styles.Warning.Render(msg)
	case LevelErr:
		return styles.Error.Render(msg)
	case LevelSuccess:
		return styles.Success.Render(msg)
	default:
		return styles.Info.Render(msg)
	}
}

var githubEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

// GithubFormatter writes warnings and errors as workflow commands so they
// show up as annotations, on the associated file when there is one.
func GithubFormatter(l Logger, level Level, msg string, err error) string {
	var command string
	switch level {
	case LevelWarn:
		command = "warning"
	case LevelErr:
		command = "error"
	default:
		return msg
	}

	var attributes string
	if l.file != "" {
		title := "Merge conflict"
		if err != nil {
			title = "Merge error"
		}
		attributes = fmt.Sprintf(" file=%s,title=%s", path.Clean(l.file), title)
	}

	return fmt.Sprintf("::%s%s::%s", command, attributes, githubEscaper.Replace(msg))
}

// splitError pulls the last error field out of fields. It becomes the message
// when msg is empty and is kept as a plain string field otherwise.
func splitError(msg string, fields []zapcore.Field) (string, error, []zapcore.Field) {
	var err error
	var key string
	rest := lo.Reject(fields, func(f zapcore.Field, _ int) bool {
		if e, ok := f.Interface.(error); ok && f.Type == zapcore.ErrorType {
			err, key = e, f.Key
			return true
		}
		return false
	})

	switch {
	case err == nil:
		return msg, nil, rest
	case msg == "":
		return err.Error(), err, rest
	default:
		return msg, err, append(rest, zapcore.Field{Key: key, Type: zapcore.StringType, String: err.Error()})
	}
}

func encodeFields(fields []zapcore.Field) string {
	if len(fields) == 0 {
		return ""
	}

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	if len(enc.Fields) == 0 {
		return ""
	}

	data, err := json.Marshal(enc.Fields)
	if err != nil {
		return ""
	}
	return "\t" + string(data)
}
