package conversation

// RoleSink targets whichever record of role is the latest unfinalized one at
// the moment each update lands.
type RoleSink struct {
	store *Store
	role  Role
}

// RoleSink returns a sink bound to role-based targeting.
func (s *Store) RoleSink(role Role) RoleSink {
	return RoleSink{store: s, role: role}
}

func (r RoleSink) Apply(content string, finalized bool) bool {
	return r.store.UpdateLatestUnfinalized(r.role, content, finalized)
}

// RecordSink targets one record by id. Updates stop landing once the record
// is finalized.
type RecordSink struct {
	store *Store
	id    int
}

// RecordSink returns a sink bound to the record with the given id.
func (s *Store) RecordSink(id int) RecordSink {
	return RecordSink{store: s, id: id}
}

func (r RecordSink) Apply(content string, finalized bool) bool {
	return r.store.Update(r.id, content, finalized)
}
