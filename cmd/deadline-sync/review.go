package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"deadline_sync/internal/domain"
	"deadline_sync/internal/syllabus"
)

var reviewKinds = []domain.Kind{
	domain.KindExam,
	domain.KindQuiz,
	domain.KindReading,
	domain.KindAssignment,
	domain.KindOther,
}

// prompter asks questions on a terminal. It implements service.Confirmer and
// service.Reviewer.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

func (p *prompter) Confirm(ctx context.Context, items []domain.DeadlineItem) ([]domain.DeadlineItem, error) {
	fmt.Fprintf(p.out, "\n%d new deadlines:\n\n", len(items))
	for _, item := range items {
		fmt.Fprintf(p.out, "  %s - %s - %s\n", item.CourseName, item.Kind, item.Title)
		fmt.Fprintf(p.out, "    Due: %s\n", item.DueDate.Local().Format("Mon Jan 2, 2006 at 3:04 PM"))
	}

	ok, err := p.yesNo(ctx, fmt.Sprintf("\nCreate %d reminders?", len(items)), true)
	if err != nil || !ok {
		return nil, err
	}
	return items, nil
}

func (p *prompter) Review(ctx context.Context, course string, candidates []domain.CandidateDate) ([]domain.ReviewDecision, error) {
	fmt.Fprintf(p.out, "\nFound %d potential dates in syllabus for %s:\n\n", len(candidates), course)

	var accepted []domain.ReviewDecision
	for _, c := range candidates {
		fmt.Fprintln(p.out, strings.Repeat("-", 60))
		fmt.Fprintf(p.out, "Date: %s\n", c.Date.Local().Format("Mon Jan 2, 2006 at 3:04 PM"))
		fmt.Fprintf(p.out, "Found: %q\n", c.Text)
		fmt.Fprintf(p.out, "Context: ...%s...\n", c.Context)
		fmt.Fprintf(p.out, "Confidence: %s\n", c.Confidence)

		include, err := p.yesNo(ctx, "Add this to reminders?", c.Confidence == domain.ConfidenceHigh)
		if err != nil {
			return nil, err
		}
		if !include {
			continue
		}

		title, err := p.ask(ctx, "Reminder title", c.SuggestedTitle)
		if err != nil {
			return nil, err
		}

		kind, err := p.chooseKind(ctx, syllabus.SuggestKind(title))
		if err != nil {
			return nil, err
		}

		accepted = append(accepted, domain.ReviewDecision{Candidate: c, Title: title, Kind: kind})
	}

	fmt.Fprintf(p.out, "\nConfirmed %d events for reminders.\n", len(accepted))
	return accepted, nil
}

func (p *prompter) chooseKind(ctx context.Context, def domain.Kind) (domain.Kind, error) {
	names := make([]string, len(reviewKinds))
	for i, k := range reviewKinds {
		names[i] = string(k)
	}

	for {
		answer, err := p.ask(ctx, "Type ("+strings.Join(names, "/")+")", string(def))
		if err != nil {
			return "", err
		}
		for _, k := range reviewKinds {
			if strings.EqualFold(answer, string(k)) {
				return k, nil
			}
		}
		fmt.Fprintf(p.out, "Unknown type %q\n", answer)
	}
}

func (p *prompter) yesNo(ctx context.Context, question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}

	for {
		answer, err := p.ask(ctx, question+" "+hint, "")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

// ask prints question and reads one line. An empty answer yields def.
func (p *prompter) ask(ctx context.Context, question, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(p.out, "%s ", question)
	}

	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read answer: %w", err)
	}

	if line = strings.TrimSpace(line); line == "" {
		return def, nil
	}
	return line, nil
}
