// Package phone canonicalizes Brazilian phone numbers and expands them into
// the set of format variants legacy records might be stored under.
package phone

import "strings"

const countryPrefix = "55"

// Canonicalize strips every non-digit character. It is idempotent.
func Canonicalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Variants expands a phone into every format a legacy record might use:
// with and without the "55" country prefix, and with and without the mobile
// ninth digit, plus the cross-product of both toggles. The canonical form is
// always included and the result is duplicate-free.
func Variants(raw string) []string {
	canonical := Canonicalize(raw)
	if canonical == "" {
		return nil
	}

	seen := map[string]struct{}{}
	var out []string
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	add(canonical)

	for _, base := range []string{canonical, stripCountry(canonical)} {
		for _, local := range []string{base, withNinthDigit(base), withoutNinthDigit(base)} {
			add(local)
			add(countryPrefix + stripCountry(local))
		}
	}

	return out
}

func stripCountry(digits string) string {
	// A subscriber number with area code is 10 or 11 digits; only strip the
	// prefix when what remains still looks like one.
	if strings.HasPrefix(digits, countryPrefix) && len(digits) >= 12 {
		return digits[len(countryPrefix):]
	}
	return digits
}

// withNinthDigit inserts the mobile "9" at position 2 of the subscriber
// number (after the two-digit area code) when it is missing.
func withNinthDigit(digits string) string {
	local := stripCountry(digits)
	if len(local) != 10 {
		return digits
	}
	return local[:2] + "9" + local[2:]
}

// withoutNinthDigit drops the mobile "9" after the area code when present.
func withoutNinthDigit(digits string) string {
	local := stripCountry(digits)
	if len(local) != 11 || local[2] != '9' {
		return digits
	}
	return local[:2] + local[3:]
}
