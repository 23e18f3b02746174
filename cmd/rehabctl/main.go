package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"golang-rehabtrack/client"
	"golang-rehabtrack/config"
)

const usage = `usage: rehabctl <command> [flags]

commands:
  login        -email -password
  register     -email -name -role -password [-specialization]
  logout
  whoami
  patients     [-mine]
  exercises    [-patient] [-tab current|completed|history|all] [-status all|not-completed|wrong-execution] [-sort time-desc|time-asc|name-asc|name-desc]
  assign       -patient -name [-description] [-due 72h]
  status       -exercise -set "In Progress"
  submit       -exercise -file video.mp4 [-patient]
  predictions  [-patient | -exercise]
  review       [-patient]
  videos       [-patient]
`

var errUsage = errors.New("invalid usage")

type app struct {
	api     *client.API
	session *client.Service
	out     io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cfg := config.LoadClient()
	logger := log.New(io.Discard, "rehabctl: ", log.LstdFlags)
	if os.Getenv("REHAB_DEBUG") != "" {
		logger.SetOutput(stderr)
	}

	api := client.NewAPI(cfg.BaseURL,
		client.WithFallbackURL(cfg.FallbackURL),
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(logger),
		client.Lenient(cfg.LenientEnvelope),
	)
	a := &app{
		api:     api,
		session: client.NewService(api, client.NewFileRepository(cfg.SessionDir), logger),
		out:     stdout,
	}

	logger.Printf("api %s", api.BaseURL())

	ctx := context.Background()
	if err := a.session.Rehydrate(ctx); err != nil {
		logger.Printf("rehydrate: %v", err)
	}

	if err := a.dispatch(ctx, args[0], args[1:]); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "%v\n\n%s", err, usage)
			return 2
		}
		fmt.Fprintln(stderr, "Error:", client.Describe(err))
		return 1
	}
	return 0
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "logout":
		if err := a.session.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Logged out")
		return nil
	case "whoami":
		return a.whoami(ctx)
	case "patients":
		return a.patients(ctx, args)
	case "exercises":
		return a.exercises(ctx, args)
	case "assign":
		return a.assign(ctx, args)
	case "status":
		return a.status(ctx, args)
	case "submit":
		return a.submit(ctx, args)
	case "predictions":
		return a.predictions(ctx, args)
	case "review":
		return a.review(ctx, args)
	case "videos":
		return a.videos(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func required(values map[string]string) error {
	for name, v := range values {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: -%s is required", errUsage, name)
		}
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("REHAB_PASSWORD"), "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(map[string]string{"email": *email, "password": *password}); err != nil {
		return err
	}

	if err := a.session.Login(ctx, *email, *password); err != nil {
		return err
	}
	cur := a.session.Current()
	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", cur.User.FullName, cur.User.Role)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "full name")
	role := fs.String("role", string(client.RolePatient), "Doctor or Patient")
	password := fs.String("password", os.Getenv("REHAB_PASSWORD"), "account password")
	specialization := fs.String("specialization", "", "doctor specialization")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(map[string]string{"email": *email, "name": *name, "password": *password}); err != nil {
		return err
	}

	err := a.session.Register(ctx, client.RegisterRequest{
		Email:          *email,
		FullName:       *name,
		Role:           client.Role(*role),
		Password:       *password,
		Specialization: *specialization,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Account created, you can now log in")
	return nil
}

// requireUser returns the rehydrated user. The token itself is checked by the
// backend on the request that follows.
func (a *app) requireUser(context.Context) (*client.User, error) {
	cur := a.session.Current()
	if !cur.IsLoggedIn {
		return nil, client.ErrNotAuthenticated
	}
	return cur.User, nil
}

// whoami validates the stored token and ends the session if it is rejected.
func (a *app) whoami(ctx context.Context) error {
	if !a.session.CheckAuth(ctx) {
		return client.ErrNotAuthenticated
	}
	user := a.session.Current().User
	fmt.Fprintf(a.out, "%s <%s> %s id=%s\n", user.FullName, user.Email, user.Role, user.ID)
	return nil
}

func (a *app) patients(ctx context.Context, args []string) error {
	fs := newFlagSet("patients")
	mine := fs.Bool("mine", false, "only patients with exercises assigned by me")
	if err := fs.Parse(args); err != nil {
		return err
	}
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}

	var list []client.Patient
	if *mine {
		list, err = a.api.DoctorPatients(ctx, user.ID)
	} else {
		list, err = a.api.Patients(ctx)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL")
	for _, p := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.FullName, p.Email)
	}
	return w.Flush()
}

func (a *app) exercises(ctx context.Context, args []string) error {
	fs := newFlagSet("exercises")
	patientID := fs.String("patient", "", "patient id (defaults to yourself, or all your assignments for doctors)")
	tabFlag := fs.String("tab", "", "current, completed, history or all")
	statusFlag := fs.String("status", "", "all, not-completed or wrong-execution")
	sortFlag := fs.String("sort", "", "time-desc, time-asc, name-asc or name-desc")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tab, err := client.ParseTab(*tabFlag)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	filter, err := client.ParseStatusFilter(*statusFlag)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	order, err := client.ParseSortOption(*sortFlag)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}

	var list []client.Exercise
	switch {
	case *patientID != "":
		list, err = a.api.PatientExercises(ctx, *patientID)
	case user.Role == client.RoleDoctor:
		list, err = a.api.DoctorExercises(ctx, user.ID)
	default:
		list, err = a.api.PatientExercises(ctx, user.ID)
	}
	if err != nil {
		return err
	}

	list = client.SortExercises(client.FilterExercises(list, tab, filter), order)
	printExercises(a.out, list)
	return nil
}

func printExercises(out io.Writer, list []client.Exercise) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tASSIGNED\tDUE")
	for _, e := range list {
		due := "-"
		if e.DueDate != nil && !e.DueDate.IsZero() {
			due = e.DueDate.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Status, e.AssignedDate.Format("2006-01-02"), due)
	}
	w.Flush()
}

func (a *app) assign(ctx context.Context, args []string) error {
	fs := newFlagSet("assign")
	patientID := fs.String("patient", "", "patient id")
	name := fs.String("name", "", "exercise name")
	description := fs.String("description", "", "instructions for the patient")
	due := fs.Duration("due", 0, "time until the exercise is due, e.g. 72h")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(map[string]string{"patient": *patientID, "name": *name}); err != nil {
		return err
	}
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	in := client.NewExercise{
		Name:         *name,
		Description:  *description,
		AssignedBy:   user.ID,
		AssignedTo:   *patientID,
		AssignedDate: now,
	}
	if *due > 0 {
		in.DueDate = now.Add(*due)
	}
	created, err := a.api.CreateExercise(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Assigned %q to %s (id=%s)\n", created.Name, *patientID, created.ID)
	return nil
}

func (a *app) status(ctx context.Context, args []string) error {
	fs := newFlagSet("status")
	exerciseID := fs.String("exercise", "", "exercise id")
	value := fs.String("set", "", "new status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(map[string]string{"exercise": *exerciseID, "set": *value}); err != nil {
		return err
	}
	if _, err := a.requireUser(ctx); err != nil {
		return err
	}

	updated, err := a.api.UpdateExerciseStatus(ctx, *exerciseID, *value)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s is now %s\n", updated.Name, updated.Status)
	return nil
}

func (a *app) submit(ctx context.Context, args []string) error {
	fs := newFlagSet("submit")
	exerciseID := fs.String("exercise", "", "exercise id")
	path := fs.String("file", "", "video file")
	patientID := fs.String("patient", "", "patient id (defaults to yourself)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(map[string]string{"exercise": *exerciseID, "file": *path}); err != nil {
		return err
	}
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	if *patientID == "" {
		*patientID = user.ID
	}

	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	p, err := a.api.SubmitVideo(ctx, *patientID, *exerciseID, filepath.Base(*path), f)
	if err != nil {
		return err
	}
	verdict := "does not match"
	if p.IsMatch {
		verdict = "matches"
	}
	fmt.Fprintf(a.out, "Detected %s (%.0f%% confidence), %s the assigned exercise. Status: %s\n",
		p.PredictedMotion, p.ConfidenceScore*100, verdict, p.Status)
	return nil
}

func (a *app) predictions(ctx context.Context, args []string) error {
	fs := newFlagSet("predictions")
	patientID := fs.String("patient", "", "patient id (defaults to yourself)")
	exerciseID := fs.String("exercise", "", "only predictions for this exercise")
	if err := fs.Parse(args); err != nil {
		return err
	}
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}

	var list []client.Prediction
	switch {
	case *exerciseID != "":
		list, err = a.api.ExercisePredictions(ctx, *exerciseID)
	case *patientID != "":
		list, err = a.api.PatientPredictions(ctx, *patientID)
	default:
		list, err = a.api.PatientPredictions(ctx, user.ID)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tEXERCISE\tMOTION\tCONFIDENCE\tMATCH")
	for _, p := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%t\n", p.CreatedAt.Format("2006-01-02 15:04"), p.ExerciseID, p.PredictedMotion, p.ConfidenceScore, p.IsMatch)
	}
	return w.Flush()
}

// review shows a doctor the predictions on exercises they assigned.
func (a *app) review(ctx context.Context, args []string) error {
	fs := newFlagSet("review")
	patientID := fs.String("patient", "", "only this patient")
	if err := fs.Parse(args); err != nil {
		return err
	}
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}

	list, err := a.api.DoctorReviews(ctx, user.ID, *patientID)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tPATIENT\tEXERCISE\tMOTION\tCONFIDENCE\tMATCH")
	for _, r := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%t\n", r.Prediction.CreatedAt.Format("2006-01-02 15:04"), r.PatientID,
			r.Exercise.Name, r.Prediction.PredictedMotion, r.Prediction.ConfidenceScore, r.Prediction.IsMatch)
	}
	return w.Flush()
}

func (a *app) videos(ctx context.Context, args []string) error {
	fs := newFlagSet("videos")
	patientID := fs.String("patient", "", "patient id (defaults to yourself)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	user, err := a.requireUser(ctx)
	if err != nil {
		return err
	}
	if *patientID == "" {
		*patientID = user.ID
	}

	list, err := a.api.PatientVideos(ctx, *patientID)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUPLOADED\tMOTION\tMATCH\tURL")
	for _, v := range list {
		motion, match := "-", "-"
		if v.Prediction != nil {
			motion, match = v.Prediction.PredictedMotion, fmt.Sprint(v.Prediction.IsMatch)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.Video.ID, v.Video.CreatedAt.Format("2006-01-02 15:04"), motion, match, v.Video.URL)
	}
	return w.Flush()
}
