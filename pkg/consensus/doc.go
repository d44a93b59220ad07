/*
Package consensus aggregates execution proofs submitted by a roster of
weighted validator nodes and decides whether a given agent's result is
trusted.

The validator performs no networking: proofs arrive through AddProof, already
delivered by whatever transport the embedding application uses. Validation
partitions an agent's proofs into groups by exact proof-hash equality, sums
the current roster weight behind each group, and compares the winning group's
share of total weight against the required threshold.
*/
package consensus
