// Package log wraps the standard logger with caller info and an optional
// Discord log channel mirror.
package log

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/bwmarrin/discordgo"
)

var (
	session      *discordgo.Session
	logChannelID string
	ready        = make(chan struct{})
)

// Init wires the logger to a Discord session. Without Init everything
// still goes to the console.
func Init(s *discordgo.Session, channelID string) {
	session = s
	logChannelID = channelID
	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		close(ready)
	})
	log.SetOutput(&discordWriter{})
	log.SetFlags(0)
}

// Post sends a message to the log channel once the session is ready.
func Post(msg string) {
	if session != nil && logChannelID != "" {
		<-ready
		session.ChannelMessageSend(logChannelID, msg)
	}
}

// Printf logs a formatted message to the console and the log channel.
func Printf(format string, v ...any) {
	log.Printf(format, v...)
}

// Error logs an error with the caller's file and line.
func Error(context string, err error) {
	_, file, line, ok := runtime.Caller(1)
	var callerInfo string
	if ok {
		parts := strings.Split(file, "/")
		if len(parts) > 2 {
			file = strings.Join(parts[len(parts)-2:], "/")
		}
		callerInfo = fmt.Sprintf("%s:%d", file, line)
	}
	log.Printf("[ERROR] in %s: %s\n%v\n", callerInfo, context, err)
}

// Fatal logs an error and exits the process. Reserved for startup
// configuration failures.
func Fatal(context string, err error) {
	Error(context, err)
	os.Exit(1)
}

// discordWriter mirrors console output into the log channel.
type discordWriter struct{}

func (w *discordWriter) Write(p []byte) (n int, err error) {
	msg := string(p)
	fmt.Print(msg)
	if session != nil && logChannelID != "" {
		if len(msg) > 1900 {
			msg = msg[:1900] + "..."
		}
		go Post("```\n" + msg + "```")
	}
	return len(p), nil
}
