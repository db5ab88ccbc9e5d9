package services

import (
	"fmt"

	"github.com/vuxuanquyet204/webantoan/internal/attack"
	"github.com/vuxuanquyet204/webantoan/internal/models"
)

// validateRequest checks the parameters each attack type requires
func validateRequest(req *models.CreateCrackJobRequest) (attack.Type, error) {
	typ, err := attack.ParseType(req.AttackType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	switch typ {
	case attack.TypeDictionary, attack.TypeHybrid, attack.TypeRule, attack.TypeToggleCase:
		if req.WordlistID == "" {
			return "", fmt.Errorf("%w: wordlist is required for dictionary, hybrid, rule-based and toggle case attacks", ErrInvalidConfiguration)
		}
	case attack.TypeCombinator:
		if req.WordlistID == "" || req.WordlistID2 == "" {
			return "", fmt.Errorf("%w: both wordlists are required for combinator attacks", ErrInvalidConfiguration)
		}
	case attack.TypeMask:
		if req.MaskPattern == "" {
			return "", fmt.Errorf("%w: mask pattern is required for mask attacks", ErrInvalidConfiguration)
		}
	}

	if typ == attack.TypeRule {
		for _, rule := range req.RuleTypes {
			if !attack.ValidRule(rule) {
				return "", fmt.Errorf("%w: unknown rule type %q", ErrInvalidConfiguration, rule)
			}
		}
	}
	return typ, nil
}

// buildAttack resolves wordlists and applies defaults. It also fills the
// attack fields of the job row.
func (s *CrackService) buildAttack(typ attack.Type, req *models.CreateCrackJobRequest, job *models.CrackJob) (attack.Config, error) {
	var path, path2 string
	if typ.UsesWordlist() {
		resolved, err := s.wordlists.Resolve(req.WordlistID)
		if err != nil {
			return nil, err
		}
		path = resolved.AbsolutePath
		job.Wordlist = &resolved.ID
	}
	if typ == attack.TypeCombinator {
		resolved, err := s.wordlists.Resolve(req.WordlistID2)
		if err != nil {
			return nil, err
		}
		path2 = resolved.AbsolutePath
		job.Wordlist2 = &resolved.ID
	}

	switch typ {
	case attack.TypeDictionary:
		return attack.DictionaryConfig{WordlistPath: path}, nil

	case attack.TypeBruteForce:
		cfg := attack.BruteForceConfig{Charset: req.Charset, MaxLength: req.MaxLength}
		if cfg.Charset == "" {
			cfg.Charset = attack.DefaultCharset
		}
		if cfg.MaxLength <= 0 {
			cfg.MaxLength = attack.DefaultMaxLength
		}
		cfg.MaxLength = min(cfg.MaxLength, attack.MaxBruteForceLength)
		job.Charset = optionalString(req.Charset)
		job.MaxLength = optionalInt(req.MaxLength)
		return cfg, nil

	case attack.TypeHybrid:
		cfg := attack.HybridConfig{
			WordlistPath:  path,
			SuffixLength:  req.HybridSuffixLength,
			SuffixCharset: req.HybridSuffixCharset,
		}
		if cfg.SuffixLength <= 0 {
			cfg.SuffixLength = attack.DefaultHybridSuffixLength
		}
		cfg.SuffixLength = min(cfg.SuffixLength, attack.MaxHybridSuffixLength)
		if cfg.SuffixCharset == "" {
			cfg.SuffixCharset = attack.DefaultHybridSuffixCharset
		}
		job.HybridSuffixLength = optionalInt(req.HybridSuffixLength)
		job.HybridSuffixCharset = optionalString(req.HybridSuffixCharset)
		return cfg, nil

	case attack.TypeMask:
		pattern := req.MaskPattern
		if pattern == "" {
			pattern = attack.DefaultMaskPattern
		}
		job.MaskPattern = &pattern
		return attack.MaskConfig{Pattern: pattern}, nil

	case attack.TypeRule:
		rules := append([]string{}, req.RuleTypes...)
		job.RuleTypes = rules
		return attack.RuleConfig{WordlistPath: path, Rules: rules}, nil

	case attack.TypeCombinator:
		return attack.CombinatorConfig{WordlistPath: path, WordlistPath2: path2}, nil

	case attack.TypeToggleCase:
		return attack.ToggleCaseConfig{WordlistPath: path}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidConfiguration, typ)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optionalInt(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}
