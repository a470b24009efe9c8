// Package gitstore implements the content store on a local git working tree
// with go-git. Every save and image upload is a commit; the blob hash of a
// file is its version, so a save conflicts when the working tree copy no
// longer matches the blob the caller read. Commits can optionally be pushed
// to a remote with token authentication.
package gitstore
