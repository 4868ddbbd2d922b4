package schema

// SchemaSQL contains the full database schema initialization script
const SchemaSQL = `
-- Users

CREATE TABLE IF NOT EXISTS users (
    user_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    username VARCHAR(50) UNIQUE NOT NULL,
    balance_cents BIGINT NOT NULL DEFAULT 0 CHECK (balance_cents >= 0),
    valuation_reputation_score INTEGER NOT NULL DEFAULT 100,
    net_trade_surplus_cents BIGINT NOT NULL DEFAULT 0,
    wishlist JSONB NOT NULL DEFAULT '[]',
    moderator BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Items

CREATE TABLE IF NOT EXISTS items (
    item_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    owner_id UUID NOT NULL REFERENCES users(user_id),
    item_name VARCHAR(200) NOT NULL,
    item_description TEXT,
    emv_cents BIGINT NOT NULL DEFAULT 0,
    valuation_source VARCHAR(32) NOT NULL,
    valuation_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_items_owner ON items (owner_id);

-- Trades

CREATE TABLE IF NOT EXISTS trades (
    trade_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    parent_trade_id UUID REFERENCES trades(trade_id),
    proposer_id UUID NOT NULL REFERENCES users(user_id),
    receiver_id UUID NOT NULL REFERENCES users(user_id),
    proposer_item_ids JSONB NOT NULL DEFAULT '[]',
    receiver_item_ids JSONB NOT NULL DEFAULT '[]',
    proposer_cash_cents BIGINT NOT NULL DEFAULT 0,
    receiver_cash_cents BIGINT NOT NULL DEFAULT 0,
    status VARCHAR(32) NOT NULL,
    cancel_reason VARCHAR(64),
    proposer_value_cents BIGINT NOT NULL DEFAULT 0,
    receiver_value_cents BIGINT NOT NULL DEFAULT 0,
    platform_fee_cents BIGINT NOT NULL DEFAULT 0,
    fee_payer_id UUID,
    escrow_payer_id UUID,
    escrow_amount_cents BIGINT NOT NULL DEFAULT 0,
    escrow_funded BOOLEAN NOT NULL DEFAULT FALSE,
    settled BOOLEAN NOT NULL DEFAULT FALSE,
    proposer_tracking_number VARCHAR(100),
    receiver_tracking_number VARCHAR(100),
    proposer_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
    receiver_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
    proposer_rated BOOLEAN NOT NULL DEFAULT FALSE,
    receiver_rated BOOLEAN NOT NULL DEFAULT FALSE,
    dispute_ticket_id UUID,
    delivery_deadline TIMESTAMPTZ,
    rating_deadline TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_trades_status ON trades (status);
CREATE INDEX IF NOT EXISTS idx_trades_proposer ON trades (proposer_id);
CREATE INDEX IF NOT EXISTS idx_trades_receiver ON trades (receiver_id);
CREATE INDEX IF NOT EXISTS idx_trades_delivery_deadline ON trades (delivery_deadline) WHERE delivery_deadline IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_trades_rating_deadline ON trades (rating_deadline) WHERE rating_deadline IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_trades_item_refs ON trades USING GIN (proposer_item_ids, receiver_item_ids);

-- Dispute Tickets

CREATE TABLE IF NOT EXISTS dispute_tickets (
    ticket_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    trade_id UUID NOT NULL REFERENCES trades(trade_id),
    initiator_id UUID NOT NULL REFERENCES users(user_id),
    respondent_id UUID NOT NULL REFERENCES users(user_id),
    status VARCHAR(32) NOT NULL,
    dispute_type VARCHAR(32) NOT NULL,
    initiator_evidence JSONB,
    respondent_evidence JSONB,
    mediation_log JSONB NOT NULL DEFAULT '[]',
    resolution JSONB,
    deadline_for_next_action TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- One open ticket per trade
CREATE UNIQUE INDEX IF NOT EXISTS idx_dispute_open_per_trade
    ON dispute_tickets (trade_id)
    WHERE status NOT IN ('RESOLVED', 'CLOSED_AUTOMATICALLY');

CREATE INDEX IF NOT EXISTS idx_dispute_deadline ON dispute_tickets (deadline_for_next_action)
    WHERE status NOT IN ('RESOLVED', 'CLOSED_AUTOMATICALLY');

-- Trade Ratings

CREATE TABLE IF NOT EXISTS trade_ratings (
    rating_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    trade_id UUID NOT NULL REFERENCES trades(trade_id),
    rater_id UUID NOT NULL REFERENCES users(user_id),
    ratee_id UUID NOT NULL REFERENCES users(user_id),
    overall_score INTEGER NOT NULL CHECK (overall_score BETWEEN 1 AND 5),
    item_accuracy_score INTEGER NOT NULL CHECK (item_accuracy_score BETWEEN 1 AND 5),
    shipping_speed_score INTEGER NOT NULL CHECK (shipping_speed_score BETWEEN 1 AND 5),
    communication_score INTEGER NOT NULL CHECK (communication_score BETWEEN 1 AND 5),
    public_comment TEXT,
    private_feedback TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (trade_id, rater_id)
);

CREATE INDEX IF NOT EXISTS idx_ratings_ratee ON trade_ratings (ratee_id);

-- Reputation Ledger (append-only)

CREATE TABLE IF NOT EXISTS reputation_events (
    event_id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(user_id),
    trade_id UUID NOT NULL REFERENCES trades(trade_id),
    score_delta INTEGER NOT NULL,
    surplus_delta_cents BIGINT NOT NULL,
    reason VARCHAR(64) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (trade_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_reputation_user ON reputation_events (user_id, created_at DESC);

-- Audit Event Log

CREATE TABLE IF NOT EXISTS events (
    id BIGSERIAL PRIMARY KEY,
    event_type VARCHAR(100) NOT NULL,
    user_id UUID,
    payload JSONB,
    metadata JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_events_type_created ON events (event_type, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_events_user ON events (user_id) WHERE user_id IS NOT NULL;
`
