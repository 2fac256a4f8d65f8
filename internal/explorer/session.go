package explorer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rohmanhakim/nps-explorer/internal/metadata"
	"github.com/rohmanhakim/nps-explorer/internal/record"
	"github.com/rohmanhakim/nps-explorer/pkg/failure"
)

const (
	promptRegion = `Enter a state name (e.g. Michigan, michigan) or "exit": `
	promptSite   = `Choose the number for detail search or "exit" or "back": `

	msgBadRegion    = "[Error] Enter proper state name"
	msgInvalidInput = "[Error] Invalid input"

	cmdExit = "exit"
	cmdBack = "back"
)

// Navigator is the slice of the pipeline the explorer drives.
type Navigator interface {
	DiscoverRegions(ctx context.Context) (record.RegionIndex, failure.ClassifiedError)
	RegionListing(ctx context.Context, region string) ([]string, []string, failure.ClassifiedError)
	SiteNearby(ctx context.Context, region string, siteURL string) (record.SiteRecord, []record.PlaceRecord, failure.ClassifiedError)
}

type state int

const (
	stateSelectRegion state = iota
	stateSelectSite
	stateDone
)

/*
Session is the interactive loop:

	selectRegion --valid region--> selectSite
	selectSite   --back--------->  selectRegion
	any          --exit / EOF--->  done

A failed lookup prints "[Error] <message>" and re-prompts in the same
state. Only a read error on the input ends the session with an error.
*/
type Session struct {
	navigator    Navigator
	scanner      *bufio.Scanner
	out          io.Writer
	progress     Progress
	metadataSink metadata.MetadataSink

	state    state
	region   string
	info     []string
	siteURLs []string
}

func NewSession(
	navigator Navigator,
	in io.Reader,
	out io.Writer,
	progress Progress,
	metadataSink metadata.MetadataSink,
) *Session {
	if progress == nil {
		progress = NoopProgress{}
	}
	return &Session{
		navigator:    navigator,
		scanner:      bufio.NewScanner(in),
		out:          out,
		progress:     progress,
		metadataSink: metadataSink,
		state:        stateSelectRegion,
	}
}

// Run drives the session until the user exits or input ends.
func (s *Session) Run(ctx context.Context) error {
	for s.state != stateDone {
		var prompt string
		switch s.state {
		case stateSelectRegion:
			prompt = "\n" + promptRegion
		case stateSelectSite:
			prompt = "\n" + promptSite
		}
		fmt.Fprint(s.out, prompt)

		line, ok, err := s.readLine()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(s.out)
			s.state = stateDone
			break
		}

		switch s.state {
		case stateSelectRegion:
			s.handleRegion(ctx, line)
		case stateSelectSite:
			s.handleSite(ctx, line)
		}
	}
	return nil
}

func (s *Session) readLine() (string, bool, error) {
	if s.scanner.Scan() {
		return strings.ToLower(strings.TrimSpace(s.scanner.Text())), true, nil
	}
	if err := s.scanner.Err(); err != nil {
		s.metadataSink.RecordError(
			time.Now(),
			"explorer",
			"Session.Run",
			metadata.CauseUnknown,
			err.Error(),
			nil,
		)
		return "", false, fmt.Errorf("read input: %w", err)
	}
	return "", false, nil
}

func (s *Session) handleRegion(ctx context.Context, input string) {
	if input == cmdExit {
		s.state = stateDone
		return
	}

	index, err := s.navigator.DiscoverRegions(ctx)
	if err != nil {
		s.printError(err)
		return
	}
	if _, ok := index.Lookup(input); !ok {
		fmt.Fprintln(s.out, msgBadRegion)
		return
	}

	s.progress.Start(fmt.Sprintf("listing national sites in %s", record.DisplayName(input)))
	info, siteURLs, err := s.navigator.RegionListing(ctx, input)
	s.progress.Stop()
	if err != nil {
		s.printError(err)
		return
	}

	s.region = input
	s.info = info
	s.siteURLs = siteURLs
	s.printListing()
	s.state = stateSelectSite
}

func (s *Session) handleSite(ctx context.Context, input string) {
	switch input {
	case cmdExit:
		s.state = stateDone
		return
	case cmdBack:
		s.region, s.info, s.siteURLs = "", nil, nil
		s.state = stateSelectRegion
		return
	}

	n, convErr := strconv.Atoi(input)
	if convErr != nil || n < 1 || n > len(s.siteURLs) {
		fmt.Fprintln(s.out, msgInvalidInput)
		return
	}

	site, places, err := s.navigator.SiteNearby(ctx, s.region, s.siteURLs[n-1])
	if err != nil {
		s.printError(err)
		return
	}
	s.printPlaces(site, places)
}

func (s *Session) printListing() {
	printHeader(s.out, "List of national sites in "+record.DisplayName(s.region))
	for i, line := range s.info {
		fmt.Fprintf(s.out, "[%d] %s\n", i+1, line)
	}
}

func (s *Session) printPlaces(site record.SiteRecord, places []record.PlaceRecord) {
	printHeader(s.out, "Places near "+site.Name)
	for _, place := range places {
		fmt.Fprintf(s.out, "- %s\n", place.Info())
	}
}

func (s *Session) printError(err error) {
	fmt.Fprintf(s.out, "[Error] %s\n", err.Error())
}

func printHeader(w io.Writer, title string) {
	rule := strings.Repeat("-", len(title))
	fmt.Fprintf(w, "%s\n%s\n%s\n", rule, title, rule)
}
