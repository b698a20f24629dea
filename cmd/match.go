package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/skillsync/skillsync/pkg/matching"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// fixture 离线匹配使用的画像文件
type fixture struct {
	Strategy string             `yaml:"strategy"`
	Profiles []matching.Profile `yaml:"profiles"`
}

type matchOptions struct {
	file     string
	user     string
	limit    int
	strategy string
	goal     string
}

var matchOpts matchOptions

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank study-partner suggestions from a YAML fixture",
	Long: `Rank study-partner suggestions offline, without a database.

Examples:
  skillsync match --file profiles.yaml --user alice
  skillsync match --file profiles.yaml --strategy complementary --limit 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMatch(cmd.OutOrStdout(), matchOpts)
	},
}

func init() {
	f := matchCmd.Flags()
	f.StringVar(&matchOpts.file, "file", "", "YAML file with a profiles list")
	f.StringVar(&matchOpts.user, "user", "", "rank for this profile id only (default: every profile)")
	f.IntVar(&matchOpts.limit, "limit", matching.DefaultLimit, "maximum suggestions per profile")
	f.StringVar(&matchOpts.strategy, "strategy", "", "overlap or complementary (default: fixture value, then overlap)")
	f.StringVar(&matchOpts.goal, "goal", "", "only keep candidates with this goal")
	_ = matchCmd.MarkFlagRequired("file")
}

func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var fx fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	seen := make(map[string]struct{}, len(fx.Profiles))
	for i, p := range fx.Profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("profile #%d has no id", i+1)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate profile id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return &fx, nil
}

func runMatch(w io.Writer, opts matchOptions) error {
	fx, err := loadFixture(opts.file)
	if err != nil {
		return err
	}

	name := opts.strategy
	if name == "" {
		name = fx.Strategy
	}
	strategy, err := matching.ParseStrategy(name)
	if err != nil {
		return err
	}
	matcher := matching.NewMatcher(matching.WithStrategy(strategy))

	goals := make(map[string][]string, len(fx.Profiles))
	requesters := fx.Profiles
	for _, p := range fx.Profiles {
		goals[p.ID] = p.Goals
		if opts.user != "" && p.ID == opts.user {
			requesters = []matching.Profile{p}
		}
	}
	if opts.user != "" && (len(requesters) != 1 || requesters[0].ID != opts.user) {
		return fmt.Errorf("profile %q not found in %s", opts.user, opts.file)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "REQUESTER\tRANK\tCANDIDATE\tSCORE\tSKILLS\tGOALS\n")
	for _, req := range requesters {
		rank := 0
		for _, s := range matcher.Rank(req, fx.Profiles, opts.limit) {
			if opts.goal != "" && !matching.MatchesGoal(goals[s.CandidateID], opts.goal) {
				continue
			}
			rank++
			fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\t%s\n",
				req.ID, rank, s.CandidateID, s.MatchScore,
				strings.Join(s.OverlappingSkills, ","), strings.Join(s.OverlappingGoals, ","))
		}
	}
	return tw.Flush()
}
