// Package config loads the competitions file, the runtime settings, and the
// on-disk layout of the ippon home directory.
//
// The competitions file is an INI document where every section is named
// "competition.<id>" and carries name, start and end (DD/MM/YYYY) keys, plus
// an optional year. Runtime settings come from viper with IPPON_* environment
// overrides and an optional .env file. Paths derives every directory of the
// home layout and is passed explicitly to the components that need it.
package config
