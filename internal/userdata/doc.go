// Package userdata resolves the on-disk locations vixpip works in: the
// ~/.vixscript home directory and the extension root below it that holds
// every installed package.
package userdata
