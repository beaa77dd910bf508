package inference

import "sort"

// rankAverage assigns 1-based ranks to values, giving tied values the mean of
// the ranks they span. It also returns the tie term sum(t^3 - t) over every
// run of t tied values.
func rankAverage(values []float64) (ranks []float64, ties float64) {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})

	ranks = make([]float64, n)
	for i := 0; i < n; {
		j := i + 1
		for j < n && values[order[j]] == values[order[i]] {
			j++
		}
		// positions i..j-1 hold ranks i+1..j
		avg := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		if t := float64(j - i); t > 1 {
			ties += t*t*t - t
		}
		i = j
	}
	return ranks, ties
}

// concat joins groups and returns the offsets of each group in the result
func concat(groups [][]float64) ([]float64, []int) {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	all := make([]float64, 0, total)
	offsets := make([]int, len(groups)+1)
	for i, g := range groups {
		offsets[i] = len(all)
		all = append(all, g...)
	}
	offsets[len(groups)] = len(all)
	return all, offsets
}
