// Package textfeat turns plot summaries into L2-normalised TF-IDF vectors.
//
// Documents are lower-cased and NFC-normalised, split into runs of at least two
// word characters, and expanded to word n-grams. Fit learns a vocabulary
// bounded by a minimum document frequency and a maximum feature count, plus a
// smoothed inverse document frequency per term. Transform produces sparse
// vectors with sorted indices.
package textfeat
