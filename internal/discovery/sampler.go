package discovery

// Page sampling is deterministic so discovery is reproducible for a given
// document: the same (pageCount, n) always selects the same pages.

// SamplePages returns up to n distinct 1-indexed pages spread evenly across
// the document, always including the first and last page when n > 1.
func SamplePages(pageCount, n int) []int {
	if pageCount < 1 || n < 1 {
		return nil
	}
	if n >= pageCount {
		pages := make([]int, pageCount)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	pages := make([]int, 0, n)
	last := 0
	for i := 0; i < n; i++ {
		// Round i*(P-1)/(n-1) to the nearest page.
		page := 1 + (i*(pageCount-1)+(n-1)/2)/(n-1)
		if page > pageCount {
			page = pageCount
		}
		if page != last {
			pages = append(pages, page)
			last = page
		}
	}
	return pages
}

// ChainSample returns a deterministic sample of up to n pages for pass
// (0-indexed) of a multi-pass discovery chain. Passes interleave across a
// combined grid of n*passes evenly spaced slots, so different passes select
// near-disjoint pages when the document is large enough.
func ChainSample(pageCount, n, pass, passes int) []int {
	if passes <= 1 {
		return SamplePages(pageCount, n)
	}
	if pageCount < 1 || n < 1 || pass < 0 || pass >= passes {
		return nil
	}

	total := n * passes
	if total >= pageCount {
		// Not enough pages to interleave; fall back to a full even sample.
		return SamplePages(pageCount, n)
	}

	pages := make([]int, 0, n)
	last := 0
	for i := 0; i < n; i++ {
		g := i*passes + pass
		page := 1 + (g*(pageCount-1)+(total-1)/2)/(total-1)
		if page > pageCount {
			page = pageCount
		}
		if page != last {
			pages = append(pages, page)
			last = page
		}
	}
	return pages
}
