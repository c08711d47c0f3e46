/*
Package dump provides I/O operations for collected states of the recruitment
engines.

State collection (including storage) allows moving the engine between stores
and reproducing its state in tests. The package works with dumps stored in the
file system using human-readable encoding.
*/
package dump
