package auth

import (
	"github.com/PowerDNS/lmdb-go/lmdb"
)

// DenyStore tracks revoked or disabled user IDs in an on-disk LMDB database,
// so a revocation survives a tracker process restart without depending on
// the external user-account service being reachable at startup.
type DenyStore struct {
	env *lmdb.Env
	dbi lmdb.DBI
}

// OpenDenyStore opens (creating if necessary) the deny-store at path.
func OpenDenyStore(path string) (*DenyStore, error) {
	env, err := lmdb.NewEnv()
	if err != nil {
		return nil, err
	}
	if err := env.SetMapSize(64 << 20); err != nil {
		_ = env.Close()
		return nil, err
	}
	if err := env.Open(path, lmdb.NoSubdir, 0o600); err != nil {
		_ = env.Close()
		return nil, err
	}

	var dbi lmdb.DBI
	err = env.Update(func(txn *lmdb.Txn) error {
		var err error
		dbi, err = txn.CreateDBI("denied")
		return err
	})
	if err != nil {
		_ = env.Close()
		return nil, err
	}

	return &DenyStore{env: env, dbi: dbi}, nil
}

// Close releases the underlying LMDB environment.
func (d *DenyStore) Close() error {
	if d == nil {
		return nil
	}
	return d.env.Close()
}

// IsDenied reports whether userID is on the deny list. A read failure is
// treated as "not denied": this store only short-circuits the common case,
// the external user-account service remains authoritative.
func (d *DenyStore) IsDenied(userID string) bool {
	if d == nil || userID == "" {
		return false
	}

	denied := false
	err := d.env.View(func(txn *lmdb.Txn) error {
		txn.RawRead = true
		_, err := txn.Get(d.dbi, []byte(userID))
		if err == nil {
			denied = true
			return nil
		}
		if lmdb.IsNotFound(err) {
			return nil
		}
		return err
	})
	if err != nil {
		logger.Warn().Err(err).Msg("deny-store read failed")
		return false
	}
	return denied
}

// Deny adds userID to the deny list.
func (d *DenyStore) Deny(userID string) error {
	return d.env.Update(func(txn *lmdb.Txn) error {
		return txn.Put(d.dbi, []byte(userID), []byte{1}, 0)
	})
}

// Allow removes userID from the deny list, if present.
func (d *DenyStore) Allow(userID string) error {
	return d.env.Update(func(txn *lmdb.Txn) error {
		err := txn.Del(d.dbi, []byte(userID), nil)
		if lmdb.IsNotFound(err) {
			return nil
		}
		return err
	})
}
