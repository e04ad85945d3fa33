package analyzer

// Levenshtein returns the edit distance between a and b: the minimum number of
// single-rune insertions, deletions and substitutions turning one into the
// other. It fills the whole (m+1)x(n+1) table, so memory grows with the
// product of the lengths; use LevenshteinScanline for long inputs.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	m, n := len(ra), len(rb)

	table := make([][]int, m+1)
	for i := range table {
		table[i] = make([]int, n+1)
		table[i][0] = i
	}
	for j := 0; j <= n; j++ {
		table[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if ra[i-1] == rb[j-1] {
				table[i][j] = table[i-1][j-1]
				continue
			}
			table[i][j] = 1 + min(table[i-1][j], table[i][j-1], table[i-1][j-1])
		}
	}

	return table[m][n]
}

// LevenshteinScanline computes the same distance as Levenshtein keeping only
// two rows of the table, rotated as it walks down a.
func LevenshteinScanline(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	m, n := len(ra), len(rb)

	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			curr[j] = 1 + min(prev[j], curr[j-1], prev[j-1])
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
