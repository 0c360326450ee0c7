package vectordb

const maxKMeansIterations = 25

// kmeans partitions vectors into k cells with Lloyd's algorithm. Initial
// centroids are the vectors at evenly spaced ordinals, so the result is
// deterministic. The returned assignment maps each vector to its nearest
// final centroid.
func kmeans(vectors [][]float32, k int) ([][]float32, []int) {
	n := len(vectors)
	dim := len(vectors[0])

	centroids := make([][]float32, k)
	for c := range centroids {
		centroids[c] = append([]float32(nil), vectors[c*n/k]...)
	}

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}

	for iter := 0; iter < maxKMeansIterations; iter++ {
		changed := false
		for i, v := range vectors {
			c := nearestCentroid(centroids, v)
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if !changed {
			return centroids, assign
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, v := range vectors {
			c := assign[i]
			counts[c]++
			for j, x := range v {
				sums[c][j] += float64(x)
			}
		}
		for c := range centroids {
			// Empty cells keep their previous centroid.
			if counts[c] == 0 {
				continue
			}
			for j := range centroids[c] {
				centroids[c][j] = float32(sums[c][j] / float64(counts[c]))
			}
		}
	}

	for i, v := range vectors {
		assign[i] = nearestCentroid(centroids, v)
	}
	return centroids, assign
}

// nearestCentroid returns the closest centroid, lowest index on ties.
func nearestCentroid(centroids [][]float32, v []float32) int {
	best, bestDist := 0, squaredL2(centroids[0], v)
	for c := 1; c < len(centroids); c++ {
		if d := squaredL2(centroids[c], v); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
