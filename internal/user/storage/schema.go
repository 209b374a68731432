package storage

// Schema creates the user directory tables. A relationships row exists only for pairs in a
// pending or contact state, keyed by the canonically ordered pair.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id            UUID PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    full_name     TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    profile_pic   TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS relationships (
    user_low   UUID NOT NULL REFERENCES users (id),
    user_high  UUID NOT NULL REFERENCES users (id),
    state      TEXT NOT NULL CHECK (state IN ('pending', 'contact')),
    requester  UUID REFERENCES users (id),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_low, user_high),
    CHECK (user_low < user_high),
    CHECK ((state = 'pending') = (requester IS NOT NULL)),
    CHECK (requester IS NULL OR requester IN (user_low, user_high))
);

CREATE INDEX IF NOT EXISTS relationships_user_high_idx ON relationships (user_high);

CREATE TABLE IF NOT EXISTS blocks (
    blocker_id UUID NOT NULL REFERENCES users (id),
    blocked_id UUID NOT NULL REFERENCES users (id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (blocker_id, blocked_id),
    CHECK (blocker_id <> blocked_id)
);
`
