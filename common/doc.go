// Package common provides helpers shared by the survey operations: fingerprinting and hashing images stored in a gocloud.dev/blob.Bucket, creating thumbnails and caching whosonfirst/go-reader and go-writer instances.
package common

/*

Buckets are not pooled here. Calling a bucket's Close() method (and you should call it
_somewhere_) stops it working for every other piece of code holding the same instance,
so buckets are opened as one-offs by whoever needs them and closed by them too.

*/
