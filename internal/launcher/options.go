package launcher

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/coupons/coupons-compose/internal/project"
)

// Options are the values of the launcher's own flags.
type Options struct {
	Environment string
	Verbose     bool
}

// Validate checks the selected environment against the allowed set of the profile.
func (o Options) Validate(p *project.Profile) error {
	if !p.Allows(o.Environment) {
		return &InvalidOptionError{Flag: "-e", Value: o.Environment, Allowed: p.Environments}
	}
	return nil
}

// ShortOnlyAnnotation marks a flag that is only recognised by its shorthand. Its long name is forwarded like any
// other unknown token.
const ShortOnlyAnnotation = "coupons_compose_short_only"

// MarkShortOnly stops Split from consuming the long name of the named flag.
func MarkShortOnly(fs *pflag.FlagSet, name string) error {
	return fs.SetAnnotation(name, ShortOnlyAnnotation, []string{"true"})
}

func isShortOnly(flag *pflag.Flag) bool {
	_, ok := flag.Annotations[ShortOnlyAnnotation]
	return ok && flag.Shorthand != ""
}

// Split separates the tokens addressed to the flags defined on fs from the tokens forwarded to the compose tool.
// Forwarded tokens keep their relative order. The first "--" is dropped and everything after it is forwarded.
//
// Recognised forms are --name, --name=value, --name value, -n, -n=value, -n value and -nvalue. Flags marked with
// MarkShortOnly only accept the shorthand forms. Combined boolean shorthands like -vd are not split and are forwarded
// as-is. The -n=value form is returned as the two tokens -n and value.
func Split(fs *pflag.FlagSet, args []string) (known []string, forwarded []string, err error) {
	forwarded = make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			forwarded = append(forwarded, args[i+1:]...)
			break
		}
		flag, inline := lookup(fs, arg)
		if flag == nil {
			forwarded = append(forwarded, arg)
			continue
		}
		if inline || flag.NoOptDefVal != "" {
			known = append(known, normalize(flag, arg)...)
			continue
		}
		if i+1 >= len(args) || looksLikeFlag(args[i+1]) {
			return nil, nil, &InvalidOptionError{Flag: arg, Reason: "expected one argument"}
		}
		known = append(known, arg, args[i+1])
		i++
	}
	return known, forwarded, nil
}

// Parse splits args, then parses the known tokens into fs. The remaining forwarded tokens are returned.
func Parse(fs *pflag.FlagSet, args []string) ([]string, error) {
	known, forwarded, err := Split(fs, args)
	if err != nil {
		return nil, err
	}
	if err := fs.Parse(known); err != nil {
		return nil, &InvalidOptionError{Reason: err.Error()}
	}
	return forwarded, nil
}

// lookup returns the flag addressed by arg, and whether arg carries the flag value inline.
func lookup(fs *pflag.FlagSet, arg string) (*pflag.Flag, bool) {
	switch {
	case strings.HasPrefix(arg, "--") && len(arg) > 2:
		name, _, inline := strings.Cut(arg[2:], "=")
		flag := fs.Lookup(name)
		if flag == nil || isShortOnly(flag) {
			return nil, false
		}
		return flag, inline
	case strings.HasPrefix(arg, "-") && len(arg) > 1:
		flag := fs.ShorthandLookup(arg[1:2])
		if flag == nil || len(arg) == 2 {
			return flag, false
		}
		if arg[2] == '=' {
			return flag, true
		}
		// -ev style values only apply to flags that need one
		if flag.NoOptDefVal == "" {
			return flag, true
		}
	}
	return nil, false
}

// normalize rewrites -n=value of a flag taking a value into -n value. pflag would otherwise read "=value" as the
// value, and -n= as "=".
func normalize(flag *pflag.Flag, arg string) []string {
	if flag.NoOptDefVal == "" && len(arg) > 2 && arg[1] != '-' && arg[2] == '=' {
		return []string{arg[:2], arg[3:]}
	}
	return []string{arg}
}

// FlagUsages renders the flag listing of fs for help output. Unlike pflag's own listing, flags marked with
// MarkShortOnly are shown by their shorthand alone.
func FlagUsages(fs *pflag.FlagSet) string {
	type line struct{ left, usage string }
	var lines []line
	width := 0
	fs.VisitAll(func(flag *pflag.Flag) {
		if flag.Hidden {
			return
		}
		var left string
		switch {
		case isShortOnly(flag):
			left = "  -" + flag.Shorthand
		case flag.Shorthand != "":
			left = fmt.Sprintf("  -%s, --%s", flag.Shorthand, flag.Name)
		default:
			left = "      --" + flag.Name
		}
		varname, usage := pflag.UnquoteUsage(flag)
		if varname != "" {
			left += " " + varname
		}
		width = max(width, len(left))
		lines = append(lines, line{left, usage})
	})

	buff := new(strings.Builder)
	for _, l := range lines {
		fmt.Fprintf(buff, "%-*s   %s\n", width, l.left, l.usage)
	}
	return buff.String()
}

func looksLikeFlag(arg string) bool {
	return len(arg) > 1 && strings.HasPrefix(arg, "-")
}
