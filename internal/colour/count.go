package colour

const (
	// MinClusters is the smallest palette ever produced.
	MinClusters = 5
	// MaxClusters bounds the palette to four rows of the swatch grid.
	MaxClusters = 24
	// coloursPerCluster is how many distinct image colours buy one more cluster.
	coloursPerCluster = 6
)

// ClusterCount picks how many clusters to request for an image with the given
// number of distinct colours: 5 + unique/6, clamped to [MinClusters, MaxClusters].
func ClusterCount(unique int) int {
	return min(max(MinClusters+max(unique, 0)/coloursPerCluster, MinClusters), MaxClusters)
}
