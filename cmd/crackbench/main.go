// Command crackbench runs one cracking attack in-process, without a database,
// and prints how long it took.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/vuxuanquyet204/webantoan/internal/attack"
	"github.com/vuxuanquyet204/webantoan/internal/hashing"
	"github.com/vuxuanquyet204/webantoan/internal/models"
	"github.com/vuxuanquyet204/webantoan/internal/worker"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	password  string
	algorithm string
	hash      string
	salt      string

	attackType    string
	wordlist      string
	wordlist2     string
	maxLength     int
	charset       string
	suffixLength  int
	suffixCharset string
	mask          string
	rules         []string
	timeout       time.Duration
}

func parseFlags(args []string, out io.Writer) (*options, error) {
	var o options
	flagSet := pflag.NewFlagSet("crackbench", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.StringVar(&o.password, "password", "", "plaintext to hash and then recover")
	flagSet.StringVar(&o.algorithm, "algorithm", hashing.AlgorithmMD5, "bcrypt, argon2id, md5 or sha1")
	flagSet.StringVar(&o.hash, "hash", "", "stored hash to attack instead of --password")
	flagSet.StringVar(&o.salt, "salt", "", "salt of --hash for md5/sha1")
	flagSet.StringVarP(&o.attackType, "attack", "a", string(attack.TypeDictionary), "attack type")
	flagSet.StringVarP(&o.wordlist, "wordlist", "w", "", "wordlist file")
	flagSet.StringVar(&o.wordlist2, "wordlist2", "", "second wordlist file for combinator attacks")
	flagSet.IntVar(&o.maxLength, "max-length", attack.DefaultMaxLength, "brute force maximum length")
	flagSet.StringVar(&o.charset, "charset", attack.DefaultCharset, "brute force charset")
	flagSet.IntVar(&o.suffixLength, "suffix-length", attack.DefaultHybridSuffixLength, "hybrid suffix length")
	flagSet.StringVar(&o.suffixCharset, "suffix-charset", attack.DefaultHybridSuffixCharset, "hybrid suffix charset")
	flagSet.StringVarP(&o.mask, "mask", "m", attack.DefaultMaskPattern, "mask pattern")
	flagSet.StringSliceVar(&o.rules, "rules", nil, "comma separated rules for rule attacks")
	flagSet.DurationVar(&o.timeout, "timeout", 0, "stop the attack after this long (0 = no limit)")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if o.password == "" && o.hash == "" {
		return nil, errors.New("one of --password or --hash is required")
	}
	return &o, nil
}

func (o *options) credential() (models.Credential, error) {
	if o.hash != "" {
		return models.Credential{Algorithm: o.algorithm, Hash: o.hash, Salt: o.salt}, nil
	}
	hashed, err := hashing.Generate(o.algorithm, o.password, nil)
	if err != nil {
		return models.Credential{}, err
	}
	return models.Credential{Algorithm: o.algorithm, Hash: hashed.Hash, Salt: hashed.Salt, Params: hashed.Params}, nil
}

func (o *options) attackConfig() (attack.Config, error) {
	typ, err := attack.ParseType(o.attackType)
	if err != nil {
		return nil, err
	}
	if typ.UsesWordlist() && o.wordlist == "" {
		return nil, fmt.Errorf("--wordlist is required for %s attacks", typ)
	}

	switch typ {
	case attack.TypeDictionary:
		return attack.DictionaryConfig{WordlistPath: o.wordlist}, nil
	case attack.TypeBruteForce:
		return attack.BruteForceConfig{Charset: o.charset, MaxLength: o.maxLength}, nil
	case attack.TypeHybrid:
		return attack.HybridConfig{WordlistPath: o.wordlist, SuffixLength: o.suffixLength, SuffixCharset: o.suffixCharset}, nil
	case attack.TypeMask:
		return attack.MaskConfig{Pattern: o.mask}, nil
	case attack.TypeRule:
		for _, rule := range o.rules {
			if !attack.ValidRule(rule) {
				return nil, fmt.Errorf("unknown rule %q", rule)
			}
		}
		return attack.RuleConfig{WordlistPath: o.wordlist, Rules: o.rules}, nil
	case attack.TypeCombinator:
		if o.wordlist2 == "" {
			return nil, errors.New("--wordlist2 is required for combinator attacks")
		}
		return attack.CombinatorConfig{WordlistPath: o.wordlist, WordlistPath2: o.wordlist2}, nil
	case attack.TypeToggleCase:
		return attack.ToggleCaseConfig{WordlistPath: o.wordlist}, nil
	}
	return nil, fmt.Errorf("%w: %s", attack.ErrUnknownAttackType, typ)
}

func run(args []string, out io.Writer) error {
	o, err := parseFlags(args, out)
	if err != nil {
		return err
	}
	cred, err := o.credential()
	if err != nil {
		return err
	}
	cfg, err := o.attackConfig()
	if err != nil {
		return err
	}

	h := worker.New(worker.Input{JobID: "crackbench", Credential: cred, Attack: cfg}, func(c models.Credential) (attack.Verifier, error) {
		return hashing.NewVerifier(c)
	})
	h.Start()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	var deadline <-chan time.Time
	if o.timeout > 0 {
		timer := time.NewTimer(o.timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case <-h.Done():
	case <-interrupt:
		fmt.Fprintln(out, "interrupted, stopping worker")
		h.Terminate(time.Second)
	case <-deadline:
		fmt.Fprintln(out, "timeout reached, stopping worker")
		h.Terminate(time.Second)
	}

	msg := <-h.Messages()
	return report(out, cfg.Type(), cred.Algorithm, msg)
}

func report(out io.Writer, typ attack.Type, algorithm string, msg worker.Message) error {
	switch msg.Kind {
	case worker.MessageDone:
		status := "not found"
		if msg.Success {
			status = "found " + msg.Password
		}
		fmt.Fprintf(out, "attack=%s algorithm=%s result=%s\n", typ, algorithm, status)
		fmt.Fprintf(out, "attempts=%d elapsed_ms=%d attempts_per_sec=%.2f\n", msg.Attempts, msg.ElapsedMs, msg.AttemptsPerSecond)
		return nil
	case worker.MessageError:
		return fmt.Errorf("attack failed: %s", msg.Err)
	default:
		fmt.Fprintf(out, "attack=%s algorithm=%s result=stopped attempts=%d\n", typ, algorithm, msg.Attempts)
		return nil
	}
}
