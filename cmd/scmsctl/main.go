// Command scmsctl is a command-line client for the course management API.
//
// Usage:
//
//	scmsctl register -name NAME -email EMAIL -password PASSWORD
//	scmsctl login -email EMAIL -password PASSWORD
//	scmsctl logout
//	scmsctl whoami
//	scmsctl list [-search TERM]
//	scmsctl add -name NAME -description TEXT -instructor NAME
//	scmsctl delete ID
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"scms/internal/client"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type cliConfig struct {
	APIURL      string `envconfig:"SCMS_API_URL"`
	SessionFile string `envconfig:"SCMS_SESSION_FILE"`
}

var errUsage = errors.New("usage: scmsctl <register|login|logout|whoami|list|add|delete> [flags]")

func main() {
	_ = godotenv.Load()

	var cfg cliConfig
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	store, err := client.NewFileSessionStore(cfg.SessionFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	c := client.NewClient(cfg.APIURL, store)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, c, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, client.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, "session cleared; run `scmsctl login` again")
		}
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	switch cmd {
	case "register":
		name := fs.String("name", "", "display name")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		s, err := c.Register(ctx, *name, *email, *password)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Registration successful. Signed in as %s <%s>\n", s.Student.Name, s.Student.Email)

	case "login":
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		s, err := c.Login(ctx, *email, *password)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Login successful. Signed in as %s <%s>\n", s.Student.Name, s.Student.Email)

	case "logout":
		if err := c.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Logged out")

	case "whoami":
		s, err := c.Session()
		if err != nil {
			return err
		}
		if s == nil {
			return client.ErrNotLoggedIn
		}
		fmt.Fprintf(out, "%s <%s> (%s)\n", s.Student.Name, s.Student.Email, s.Student.ID)

	case "list":
		search := fs.String("search", "", "filter by name, description or instructor")
		if err := fs.Parse(args); err != nil {
			return err
		}
		courses, err := c.ListCourses(ctx, *search)
		if err != nil {
			return err
		}
		if len(courses) == 0 {
			fmt.Fprintln(out, "No courses found")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tINSTRUCTOR\tDESCRIPTION")
		for _, course := range courses {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", course.ID, course.CourseName, course.Instructor, course.CourseDescription)
		}
		return tw.Flush()

	case "add":
		name := fs.String("name", "", "course name")
		description := fs.String("description", "", "course description")
		instructor := fs.String("instructor", "", "instructor")
		if err := fs.Parse(args); err != nil {
			return err
		}
		course, err := c.CreateCourse(ctx, client.CourseInput{
			CourseName:        *name,
			CourseDescription: *description,
			Instructor:        *instructor,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Created course %s (%s)\n", course.CourseName, course.ID)

	case "delete":
		if err := fs.Parse(args); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("%w: delete takes exactly one course ID", errUsage)
		}
		msg, err := c.DeleteCourse(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, msg)

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	return nil
}
