package cmd

import (
	"flag"
	"strings"

	"github.com/etnz/networth"
	"github.com/etnz/networth/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion describes the command line for shell completion.
//
// Flags are read from each command's SetFlags, arguments are predicted
// for the commands taking account types, fields or topics.
func Completion(global *flag.FlagSet) *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: flagsOf(global),
	}
	for _, cmds := range Commands {
		for _, c := range cmds {
			fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
			c.SetFlags(fs)
			root.Sub[c.Name()] = &complete.Command{Flags: flagsOf(fs), Args: argsOf(c)}
		}
	}
	for _, name := range []string{"help", "flags", "commands"} {
		root.Sub[name] = &complete.Command{}
	}
	return root
}

func flagsOf(fs *flag.FlagSet) map[string]complete.Predictor {
	flags := map[string]complete.Predictor{}
	fs.VisitAll(func(f *flag.Flag) {
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[f.Name] = predict.Nothing
			return
		}
		switch f.Name {
		case "f":
			flags[f.Name] = predict.Files("*.json")
		case "risk":
			flags[f.Name] = predict.Set{"low", "medium", "high"}
		default:
			flags[f.Name] = predict.Something
		}
	})
	return flags
}

func argsOf(c subcommands.Command) complete.Predictor {
	switch c.(type) {
	case *addCmd:
		return assignments()
	case *topicCmd:
		topics, _ := docs.GetAllTopics()
		return predict.Set(topics)
	case *profileCmd:
		var keys predict.Set
		for _, f := range networth.ProfileFields {
			keys = append(keys, f.Name+"=")
		}
		return keys
	}
	return nil
}

// assignments predicts type=<type> and the field names of every type.
func assignments() complete.Predictor {
	seen := map[string]bool{}
	var keys predict.Set
	for _, t := range networth.Types() {
		keys = append(keys, "type="+quote(string(t)))
		fields, _ := networth.FieldsFor(t)
		for _, f := range fields {
			if f.Name != "type" && !seen[f.Name] {
				seen[f.Name] = true
				keys = append(keys, f.Name+"=")
			}
		}
	}
	return keys
}

func quote(s string) string {
	if strings.Contains(s, " ") {
		return `"` + s + `"`
	}
	return s
}
